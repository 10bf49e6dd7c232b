package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavikulu/shadowmine/internal/domain"
	"github.com/kavikulu/shadowmine/pkg/pattern"
)

func sampleReport() domain.RunReport {
	return domain.RunReport{
		RunID:     "0f2c7a1e-0000-0000-0000-000000000000",
		StartedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		Elapsed:   42 * time.Millisecond,
		Sequences: []domain.SequenceReport{
			{
				Sequence: "decay",
				Verdicts: []pattern.Result{
					{
						Kind:           pattern.KindPhiRatio,
						Score:          3.021,
						Significant:    true,
						Interpretation: pattern.InterpretationHigh,
					},
					{
						Kind:           pattern.KindFieldCoupling,
						Score:          0,
						Interpretation: pattern.InterpretationLow,
					},
				},
			},
			{
				Sequence: "short",
				Err:      "phi_ratio: insufficient data: need at least 3 points, got 2",
			},
		},
		Pairs: []domain.PairReport{
			{
				A: "lead",
				B: "trail",
				Verdict: pattern.Result{
					Kind:           pattern.KindCrossCoupling,
					Score:          0.998,
					Significant:    true,
					Interpretation: pattern.InterpretationHigh,
				},
			},
		},
	}
}

func TestRenderer_Text(t *testing.T) {
	var out strings.Builder

	err := NewRenderer(&out, false).Render(sampleReport())
	require.NoError(t, err, "Failed to render report")

	text := out.String()
	assert.Contains(t, text, "SHADOWMINE RUN 0f2c7a1e")
	assert.Contains(t, text, "decay")
	assert.Contains(t, text, "Phi-ratio enrichment")
	assert.Contains(t, text, "3.021")
	assert.Contains(t, text, "significant")
	assert.Contains(t, text, "Field-coupling signature")
	assert.Contains(t, text, "insufficient data")
	assert.Contains(t, text, "lead × trail")
	assert.Contains(t, text, "2 sequences · 2 significant · 1 failed")
}

func TestRenderer_JSON(t *testing.T) {
	var out strings.Builder

	err := NewRenderer(&out, true).Render(sampleReport())
	require.NoError(t, err, "Failed to render json report")

	var decoded domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(out.String()), &decoded), "Output should be valid json")

	assert.Equal(t, "decay", decoded.Sequences[0].Sequence)
	assert.Equal(t, pattern.KindPhiRatio, decoded.Sequences[0].Verdicts[0].Kind)
	assert.True(t, decoded.Pairs[0].Verdict.Significant)
}

func TestRenderer_EmptyReport(t *testing.T) {
	var out strings.Builder

	err := NewRenderer(&out, false).Render(domain.RunReport{RunID: "x"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "0 sequences")
}
