package pipeline

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"accounts with sheet", Message{Stage: StageAccounts, SheetID: "sheet-1"}, false},
		{"accounts without sheet", Message{Stage: StageAccounts}, true},
		{"report complete", Message{Stage: StageReport, CustomerID: "123", LookbackDays: 30}, false},
		{"report without customer", Message{Stage: StageReport, LookbackDays: 30}, true},
		{"report without lookback", Message{Stage: StageReport, CustomerID: "123"}, true},
		{"enrich with customer", Message{Stage: StageEnrich, CustomerID: "123"}, false},
		{"exclude without customer", Message{Stage: StageExclude}, true},
		{"unknown stage", Message{Stage: "reticulate"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStageTopic(t *testing.T) {
	assert.Equal(t, "pipeline.accounts", StageAccounts.Topic())
	assert.Equal(t, "pipeline.exclude", StageExclude.Topic())
}

func TestDecodeEvent(t *testing.T) {
	msg := Message{
		Stage:            StageExclude,
		RunID:            "run-1",
		SheetID:          "sheet-1",
		CustomerID:       "123",
		ExclusionFilters: "subscribers < 100",
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	decoded, err := DecodeEvent(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestDecodeEvent_Invalid(t *testing.T) {
	_, err := DecodeEvent("not base64!!!")
	assert.Error(t, err)

	// Valid base64, invalid message.
	bad := base64.StdEncoding.EncodeToString([]byte(`{"stage":"report"}`))
	_, err = DecodeEvent(bad)
	assert.Error(t, err)
}

func TestMessageNext(t *testing.T) {
	msg := Message{
		Stage:         StageReport,
		RunID:         "run-1",
		CustomerID:    "123",
		LookbackDays:  30,
		ReportFilters: "impressions > 100",
	}
	next := msg.Next(StageEnrich)

	assert.Equal(t, StageEnrich, next.Stage)
	assert.Equal(t, msg.RunID, next.RunID)
	assert.Equal(t, msg.CustomerID, next.CustomerID)
	assert.Equal(t, msg.ReportFilters, next.ReportFilters)
}
