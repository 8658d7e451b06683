package dsl

// resolveRecalls implements the "pause scope" pass of spec §4.B: each
// Recall operand is re-linked to the nearest preceding Remember condition
// of the same pause/non-pause scope. An orphan Recall (no preceding
// Remember in scope) degrades to a constant zero.
//
// Recall is modelled here by copying the linked Remember condition's first
// operand in place of the Recall operand: since both are evaluated through
// the same per-frame modified-memref cache (package Graph), reading "the
// value Remember last captured" and "re-evaluating Remember's own operand
// expression this frame" coincide for every expression this grammar can
// produce (Remember never depends on its own Recall), which keeps Recall a
// parse-time rewrite rather than requiring additional per-frame state.
func resolveRecalls(groups []ConditionGroup) {
	for gi := range groups {
		conds := groups[gi].Conditions

		var lastRememberPaused, lastRememberUnpaused *Operand
		for ci := range conds {
			cnd := &conds[ci]

			if cnd.Operand1.Kind == OperandRecall {
				link(&cnd.Operand1, cnd.Pause, lastRememberPaused, lastRememberUnpaused)
			}
			if cnd.Operand2.Kind == OperandRecall {
				link(&cnd.Operand2, cnd.Pause, lastRememberPaused, lastRememberUnpaused)
			}

			if cnd.Kind == Remember {
				if cnd.Pause {
					lastRememberPaused = &cnd.Operand1
				} else {
					lastRememberUnpaused = &cnd.Operand1
				}
			}
		}
	}
}

func link(op *Operand, pause bool, paused, unpaused *Operand) {
	var src *Operand
	if pause {
		src = paused
	} else {
		src = unpaused
	}
	if src == nil {
		*op = constOperand(0)
		return
	}
	*op = *src
}
