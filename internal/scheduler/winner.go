package scheduler

// PickWinner 在同一时刻同时生效的多条规则中选出唯一胜者
//
// 排序：开始时间晚者优先（更具体、更晚开启的窗口覆盖已在运行的宽窗口），
// 其次创建时间新者优先。非法规则不参与比较。
func PickWinner(activeRules []Rule) (*Rule, bool) {
	cands := make([]candidate, 0, len(activeRules))
	for i := range activeRules {
		w, ok := compileWindow(&activeRules[i])
		if !ok {
			continue
		}
		cands = append(cands, candidate{rule: &activeRules[i], win: w})
	}

	best, ok := pickWinner(cands)
	if !ok {
		return nil, false
	}
	r := *best.rule
	return &r, true
}

func pickWinner(cands []candidate) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if winsOver(c, best) {
			best = c
		}
	}
	return best, true
}

func winsOver(a, b candidate) bool {
	if a.win.startSec != b.win.startSec {
		return a.win.startSec > b.win.startSec
	}
	return newerFirst(a.rule, b.rule)
}
