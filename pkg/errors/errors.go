package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrBusinessForbidden 调用方无权操作目标商户
var ErrBusinessForbidden = errors.New("无权操作该商户")
