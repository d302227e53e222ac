package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcflow/signaldesk/internal/domain"
)

func TestParse_FinalResult(t *testing.T) {
	p := New()

	res, ok := p.Parse("✅¹ EURUSD-OTC - 16:00:00 - M1 - call - WIN")
	require.True(t, ok)

	assert.Equal(t, KindFinalResult, res.Kind)
	assert.Equal(t, "EURUSD-OTC", res.Signal.Asset)
	assert.Equal(t, "16:00:00", res.Signal.Time.String())
	assert.Equal(t, domain.DirectionCall, res.Signal.Direction)
	assert.Equal(t, domain.OutcomeWin, res.Signal.Outcome)
	assert.Equal(t, 1, res.Signal.Gale)
}

func TestParse_FinalResult_LossSecondGale(t *testing.T) {
	p := New()

	res, ok := p.Parse("❌² GBPJPY - 09:15:00 - M1 - PUT - loss")
	require.True(t, ok)

	assert.Equal(t, KindFinalResult, res.Kind)
	assert.Equal(t, "GBPJPY", res.Signal.Asset)
	assert.Equal(t, domain.DirectionPut, res.Signal.Direction)
	assert.Equal(t, domain.OutcomeLoss, res.Signal.Outcome)
	assert.Equal(t, 2, res.Signal.Gale)
}

func TestParse_LiveEntry(t *testing.T) {
	p := New()

	msg := "🔥 SINAL CONFIRMADO 🔥\nAtivo: EURUSD-OTC\nHorário: 16:00:00\nDireção: call\nExpiração: M1"
	res, ok := p.Parse(msg)
	require.True(t, ok)

	assert.Equal(t, KindLiveEntry, res.Kind)
	assert.Equal(t, "EURUSD-OTC", res.Signal.Asset)
	assert.Equal(t, domain.OutcomePending, res.Signal.Outcome)
	assert.Equal(t, domain.DirectionCall, res.Signal.Direction)
	assert.Equal(t, 0, res.Signal.Gale)
}

func TestParse_LiveEntry_CaseInsensitiveDirection(t *testing.T) {
	p := New()

	res, ok := p.Parse("Ativo: AUDCAD\nHorário: 10:30:00\nDireção: PUT")
	require.True(t, ok)
	assert.Equal(t, domain.DirectionPut, res.Signal.Direction)
}

func TestParse_Noise(t *testing.T) {
	p := New()

	for _, msg := range []string{
		"",
		"bom dia pessoal!",
		"WIN WIN WIN 🎉",
		"Ativo: EURUSD sem horário nem direção",
		"EURUSD - 16:00 - M1 - call - WIN", // minute precision, wrong shape
	} {
		_, ok := p.Parse(msg)
		assert.False(t, ok, "expected no match for %q", msg)
	}
}

func TestParse_ShapesAreOrderSensitive(t *testing.T) {
	p := New()

	// Direction before time does not satisfy the live-entry shape.
	_, ok := p.Parse("Direção: call\nAtivo: EURUSD-OTC\nHorário: 16:00:00")
	assert.False(t, ok)
}
