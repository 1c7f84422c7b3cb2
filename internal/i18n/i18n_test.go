package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_T(t *testing.T) {
	c := New("es")

	got := c.T(KeyMailtoSubject, map[string]any{"name": "Ana", "date": "19/10/2026"})
	assert.Equal(t, "Confirmación de Cita: Ana - 19/10/2026", got)

	body := c.T(KeyConfirmationBody, map[string]any{"name": "Ana &amp; Joan", "duration": 60, "code": "evt1"})
	assert.Contains(t, body, "<h1>Hola Ana &amp; Joan,</h1>")
	assert.Contains(t, body, "60 minutos")
	assert.Contains(t, body, ">evt1</p>")

	assert.Equal(t, "Confirmación de tu cita de fisioterapia", c.T(KeyConfirmationSubject, nil))
	assert.Equal(t, "missing.key", c.T("missing.key", nil))
}

func TestCatalog_Catalan(t *testing.T) {
	c := New("ca")
	assert.Equal(t, "Confirmació de cita: Ana - 19/10/2026",
		c.T(KeyMailtoSubject, map[string]any{"name": "Ana", "date": "19/10/2026"}))
	assert.Equal(t, "missing.key", c.T("missing.key", nil))
}

func TestCatalog_FallsBackToSpanish(t *testing.T) {
	assert.Equal(t, Spanish, New("fr").Language())
	assert.Equal(t, Catalan, New(" CA ").Language())
	assert.Equal(t, "Cancelación de tu cita de fisioterapia", New("fr").T(KeyCancellationSubject, nil))
}

func TestCatalogs_HaveSameKeys(t *testing.T) {
	ids := func(lang Language) map[string]bool {
		out := map[string]bool{}
		for _, m := range catalogs[lang] {
			require.NotEmpty(t, m.Other, "%s: %s has no text", lang, m.ID)
			out[m.ID] = true
		}
		return out
	}
	assert.Equal(t, ids(Spanish), ids(Catalan))
}
