package panel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/portfolio-app/models"
)

func TestCueFor(t *testing.T) {
	assert.Equal(t, CueNone, CueFor(models.Notification{Type: models.TypeError, Importance: models.ImportanceLow}))
	assert.Equal(t, CueNotify, CueFor(models.Notification{Type: models.TypeInfo, Importance: models.ImportanceMedium}))
	assert.Equal(t, CueAlert, CueFor(models.Notification{Type: models.TypeError, Importance: models.ImportanceMedium}))
	assert.Equal(t, CueAlert, CueFor(models.Notification{Type: models.TypeSuccess, Importance: models.ImportanceHigh}))
}

func TestBellPlayerLifecycle(t *testing.T) {
	var out bytes.Buffer
	bell := NewBellPlayer(&out)

	bell.Play(CueNotify)
	assert.Empty(t, out.String(), "plays nothing before Init")

	require.NoError(t, bell.Init())
	bell.Play(CueNotify)
	bell.Play(CueNone)
	bell.Play(CueAlert)
	assert.Equal(t, "\a\a\a", out.String())

	bell.Dispose()
	bell.Play(CueAlert)
	assert.Equal(t, "\a\a\a", out.String())

	assert.Error(t, NewBellPlayer(nil).Init())
}
