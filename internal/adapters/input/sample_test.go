package input

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beomseockjeong/threat-trend-detection/internal/domain"
	"github.com/beomseockjeong/threat-trend-detection/internal/ports"
)

func TestSampleWorkbook(t *testing.T) {
	wb := SampleWorkbook()

	require.NotNil(t, wb)
	assert.False(t, wb.Empty())
	assert.Equal(t, "sample", wb.Source)
	assert.Equal(t, domain.LayoutPositional, wb.Variant)

	require.Len(t, wb.Threats, 3)
	for i, threat := range wb.Threats {
		assert.Equal(t, i+1, threat.ID)
		assert.NotEmpty(t, threat.Title)
	}

	assert.NotEmpty(t, wb.Mail)
	assert.NotEmpty(t, wb.Ndr)
	assert.NotEmpty(t, wb.Waf)
}

func TestSampleIngestor(t *testing.T) {
	var ing SampleIngestor

	wb, err := ing.Ingest(context.Background(), "whatever.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "sample", wb.Source)
	assert.False(t, wb.Empty())
}

type stubIngestor struct {
	wb  *domain.Workbook
	err error
}

func (s stubIngestor) Ingest(_ context.Context, _ string) (*domain.Workbook, error) {
	return s.wb, s.err
}

func TestWithSampleFallback(t *testing.T) {
	tests := []struct {
		name       string
		inner      ports.WorkbookIngestor
		wantErr    bool
		wantSource string
	}{
		{
			name:       "empty workbook falls back to sample",
			inner:      stubIngestor{wb: &domain.Workbook{Source: "empty.xlsx"}},
			wantSource: "sample",
		},
		{
			name: "non-empty workbook passes through",
			inner: stubIngestor{wb: &domain.Workbook{
				Source:  "real.xlsx",
				Threats: []domain.Threat{{ID: 1, Title: "랜섬웨어 공격 증가"}},
			}},
			wantSource: "real.xlsx",
		},
		{
			name:    "error passes through",
			inner:   stubIngestor{err: errors.New("corrupt file")},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wb, err := WithSampleFallback(tc.inner).Ingest(context.Background(), "in.xlsx")

			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSource, wb.Source)
		})
	}
}
