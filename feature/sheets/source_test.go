package sheets

import (
	"context"
	"io"
	"strings"
	"testing"

	"placement-excluder/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestObjectSource_Rows(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "placement-excluder", "config/sheet-1/customer_ids.csv", mock.Anything).
		Return(io.NopCloser(strings.NewReader("1234567890,Enabled\n9876543210,Disabled\n")), nil)

	source := NewObjectSource(client, "placement-excluder")
	rows, err := source.Rows(context.Background(), "sheet-1", RangeCustomerIDs)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"1234567890", "Enabled"},
		{"9876543210", "Disabled"},
	}, rows)
	client.AssertExpectations(t)
}

func TestObjectSource_RaggedRows(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "placement-excluder", "config/sheet-1/exclusion_filters.csv", mock.Anything).
		Return(io.NopCloser(strings.NewReader("viewCount,>,1000000\nsubscriberCount,<\n")), nil)

	source := NewObjectSource(client, "placement-excluder")
	rows, err := source.Rows(context.Background(), "sheet-1", RangeExclusionFilters)
	require.NoError(t, err)

	// Short rows survive parsing; the filter compiler drops them later.
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"viewCount", ">", "1000000"}, rows[0])
	assert.Equal(t, []string{"subscriberCount", "<"}, rows[1])
}

func TestObjectSource_MissingRange(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "placement-excluder", "config/sheet-1/lookback_days.csv", mock.Anything).
		Return(nil, assert.AnError)

	source := NewObjectSource(client, "placement-excluder")
	_, err := source.Rows(context.Background(), "sheet-1", RangeLookbackDays)
	assert.Error(t, err)
}
