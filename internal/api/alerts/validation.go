package alerts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/alerting"
	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// ValidateItem checks that the request names a tradeable item.
func ValidateItem(name string, id int64) error {
	if strings.TrimSpace(name) == "" && id == 0 {
		return errors.New("item_name or item_id is required")
	}
	if len(name) > 200 {
		return errors.New("item_name must be 200 characters or less")
	}
	return nil
}

// ValidateType parses and checks an alert type string.
func ValidateType(t string) (models.AlertType, error) {
	at := models.AlertType(t)
	switch at {
	case models.AlertTypeMarginThreshold,
		models.AlertTypePriceDrop,
		models.AlertTypePriceRise,
		models.AlertTypeVolumeSpike,
		models.AlertTypeCompetitionUndercut,
		models.AlertTypeBuyPriceBelow,
		models.AlertTypeSellPriceAbove,
		models.AlertTypeNetProfitAbove,
		models.AlertTypeCustom:
		return at, nil
	default:
		return "", fmt.Errorf("unknown alert type %q", t)
	}
}

// ValidateCondition parses and checks a condition string. Empty is allowed;
// the type's default comparison applies.
func ValidateCondition(c string) (models.Condition, error) {
	switch models.Condition(c) {
	case "", models.ConditionAbove, models.ConditionBelow, models.ConditionEquals:
		return models.Condition(c), nil
	default:
		return "", errors.New("condition must be 'above', 'below', or 'equals'")
	}
}

// ValidatePriority parses and checks a priority string. Empty defaults to
// medium.
func ValidatePriority(p string) (models.Priority, error) {
	switch models.Priority(p) {
	case "":
		return models.PriorityMedium, nil
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical:
		return models.Priority(p), nil
	default:
		return "", errors.New("priority must be 'low', 'medium', 'high', or 'critical'")
	}
}

// ValidateExpression compiles a custom alert expression.
func ValidateExpression(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return errors.New("expression is required for custom alerts")
	}
	if _, err := alerting.NewExprMatcher(expression); err != nil {
		return fmt.Errorf("invalid expression: %v", err)
	}
	return nil
}

// ValidateCooldown parses a cooldown duration string. Empty means no
// cooldown.
func ValidateCooldown(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid cooldown: %v", err)
	}
	if d < 0 {
		return 0, errors.New("cooldown must not be negative")
	}
	return d, nil
}

// definitionFromCreate validates a create request and builds a definition.
func definitionFromCreate(req *CreateRequest) (*models.AlertDefinition, error) {
	if err := ValidateItem(req.ItemName, req.ItemID); err != nil {
		return nil, err
	}
	alertType, err := ValidateType(req.Type)
	if err != nil {
		return nil, err
	}
	condition, err := ValidateCondition(req.Condition)
	if err != nil {
		return nil, err
	}
	priority, err := ValidatePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	cooldown, err := ValidateCooldown(req.Cooldown)
	if err != nil {
		return nil, err
	}
	if alertType == models.AlertTypeCustom {
		if err := ValidateExpression(req.Expression); err != nil {
			return nil, err
		}
	}

	return &models.AlertDefinition{
		ItemName:       strings.TrimSpace(req.ItemName),
		ItemID:         req.ItemID,
		Type:           alertType,
		Condition:      condition,
		Threshold:      req.Threshold,
		Expression:     req.Expression,
		Priority:       priority,
		OneTime:        req.OneTime,
		Cooldown:       cooldown,
		BaselinePrice:  req.BaselinePrice,
		BaselineVolume: req.BaselineVolume,
		BaselineMargin: req.BaselineMargin,
	}, nil
}

// patchFromUpdate validates an update request and builds a patch.
func patchFromUpdate(req *UpdateRequest) (*alerting.AlertPatch, error) {
	patch := &alerting.AlertPatch{
		ItemName:   req.ItemName,
		ItemID:     req.ItemID,
		Threshold:  req.Threshold,
		Expression: req.Expression,
		OneTime:    req.OneTime,
		Enabled:    req.Enabled,
	}

	if req.ItemName != nil {
		if err := ValidateItem(*req.ItemName, 0); err != nil {
			return nil, err
		}
	}
	if req.Condition != nil {
		condition, err := ValidateCondition(*req.Condition)
		if err != nil {
			return nil, err
		}
		patch.Condition = &condition
	}
	if req.Priority != nil {
		priority, err := ValidatePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		patch.Priority = &priority
	}
	if req.Expression != nil && strings.TrimSpace(*req.Expression) != "" {
		if err := ValidateExpression(*req.Expression); err != nil {
			return nil, err
		}
	}
	if req.Cooldown != nil {
		cooldown, err := ValidateCooldown(*req.Cooldown)
		if err != nil {
			return nil, err
		}
		patch.Cooldown = &cooldown
	}

	return patch, nil
}
