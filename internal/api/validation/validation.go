package validation

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/scheduler"
)

var (
	once    sync.Once
	initErr error
)

// Register 向 gin 的默认校验器注册自定义规则，可重复调用
//
//	timeofday  HH:MM 或 HH:MM:SS
//	slot       primary | overlay
func Register() error {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			initErr = fmt.Errorf("gin 校验引擎不是 validator/v10")
			return
		}
		if err := v.RegisterValidation("timeofday", timeOfDay); err != nil {
			initErr = err
			return
		}
		initErr = v.RegisterValidation("slot", slot)
	})
	return initErr
}

func timeOfDay(fl validator.FieldLevel) bool {
	_, ok := scheduler.NormalizeTimeOfDay(fl.Field().String())
	return ok
}

func slot(fl validator.FieldLevel) bool {
	_, ok := scheduler.ParseSlot(fl.Field().String())
	return ok
}
