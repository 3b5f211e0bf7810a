package notifier

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

const titleTemplate = `{{ .Emoji }} {{ .ItemName }}: {{ .TypeLabel }}`

const bodyTemplate = `{{ .Message }}
Priority: {{ upper .Priority }}
Observed: {{ .Timestamp }}
Buy {{ printf "%.2f" .Buy }} / Sell {{ printf "%.2f" .Sell }} / Margin {{ printf "%.1f" .Margin }}%`

// Messages renders notification titles and bodies for triggered alerts.
type Messages struct {
	title *template.Template
	body  *template.Template
}

// MessageData contains data for message rendering.
type MessageData struct {
	Emoji     string
	ItemName  string
	TypeLabel string
	Priority  string
	Message   string
	Timestamp string
	Value     float64
	Buy       float64
	Sell      float64
	Margin    float64
	Volume    float64
}

// NewMessages parses the built-in message templates.
func NewMessages() (*Messages, error) {
	funcs := template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}

	title, err := template.New("title").Funcs(funcs).Parse(titleTemplate)
	if err != nil {
		return nil, err
	}
	body, err := template.New("body").Funcs(funcs).Parse(bodyTemplate)
	if err != nil {
		return nil, err
	}

	return &Messages{title: title, body: body}, nil
}

// Title renders the one-line notification title.
func (m *Messages) Title(trigger *models.TriggeredAlert) (string, error) {
	var buf bytes.Buffer
	if err := m.title.Execute(&buf, triggerToMessageData(trigger)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Body renders the multi-line notification body.
func (m *Messages) Body(trigger *models.TriggeredAlert) (string, error) {
	var buf bytes.Buffer
	if err := m.body.Execute(&buf, triggerToMessageData(trigger)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// priorityEmoji returns the emoji prefix for a priority level.
func priorityEmoji(priority models.Priority) string {
	switch priority {
	case models.PriorityCritical:
		return "🚨"
	case models.PriorityHigh:
		return "🔴"
	case models.PriorityMedium:
		return "🟡"
	case models.PriorityLow:
		return "🟢"
	default:
		return "ℹ️"
	}
}

// typeLabel returns a human-readable label for an alert type.
func typeLabel(t models.AlertType) string {
	switch t {
	case models.AlertTypeMarginThreshold:
		return "Margin Alert"
	case models.AlertTypePriceDrop:
		return "Price Drop"
	case models.AlertTypePriceRise:
		return "Price Rise"
	case models.AlertTypeVolumeSpike:
		return "Volume Spike"
	case models.AlertTypeCompetitionUndercut:
		return "Undercut"
	case models.AlertTypeBuyPriceBelow:
		return "Buy Price"
	case models.AlertTypeSellPriceAbove:
		return "Sell Price"
	case models.AlertTypeNetProfitAbove:
		return "Net Profit"
	case models.AlertTypeCustom:
		return "Custom Alert"
	default:
		return "Market Alert"
	}
}

// triggerToMessageData converts a triggered alert to template data.
func triggerToMessageData(trigger *models.TriggeredAlert) MessageData {
	return MessageData{
		Emoji:     priorityEmoji(trigger.Priority),
		ItemName:  trigger.ItemName,
		TypeLabel: typeLabel(trigger.Type),
		Priority:  string(trigger.Priority),
		Message:   trigger.Message,
		Timestamp: trigger.TriggeredAt.Format("2006-01-02 15:04:05 MST"),
		Value:     trigger.CurrentValue,
		Buy:       trigger.Snapshot.BuyPrice,
		Sell:      trigger.Snapshot.SellPrice,
		Margin:    trigger.Snapshot.MarginPct,
		Volume:    trigger.Snapshot.Volume,
	}
}
