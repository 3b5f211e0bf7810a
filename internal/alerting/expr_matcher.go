package alerting

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// ExprMatcher compiles and evaluates expr-lang expressions against trade
// snapshots. Used by custom alerts, e.g.
// `margin > 15 and volume >= 1000 and sell < 5.0`.
type ExprMatcher struct {
	expression string
	program    *vm.Program
}

// NewExprMatcher compiles the expression with type checking against the
// snapshot environment.
func NewExprMatcher(expression string) (*ExprMatcher, error) {
	program, err := expr.Compile(expression,
		expr.Env(sampleEnv()),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile expression: %w", err)
	}
	return &ExprMatcher{expression: expression, program: program}, nil
}

// Match evaluates the expression against a snapshot.
func (m *ExprMatcher) Match(snap *models.TradeSnapshot) (bool, error) {
	result, err := expr.Run(m.program, envFromSnapshot(snap))
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return bool: got %T", result)
	}
	return matched, nil
}

// Expression returns the original expression string.
func (m *ExprMatcher) Expression() string {
	return m.expression
}

func sampleEnv() map[string]any {
	return map[string]any{
		"item":    "",
		"item_id": int64(0),
		"buy":     0.0,
		"sell":    0.0,
		"margin":  0.0,
		"profit":  0.0,
		"volume":  0.0,
	}
}

func envFromSnapshot(snap *models.TradeSnapshot) map[string]any {
	return map[string]any{
		"item":    strings.ToLower(snap.TypeName),
		"item_id": snap.TypeID,
		"buy":     snap.BuyPrice,
		"sell":    snap.SellPrice,
		"margin":  snap.MarginPct,
		"profit":  snap.NetProfit,
		"volume":  snap.Volume,
	}
}
