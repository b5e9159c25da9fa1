package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ussm/internal/client"
	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/reconcile"
)

type recordingController struct {
	calls []string
	saved []client.ServiceInput
}

func (r *recordingController) SetSearch(s string) { r.calls = append(r.calls, "search:"+s) }
func (r *recordingController) SetStatus(s string) { r.calls = append(r.calls, "status:"+s) }
func (r *recordingController) SetType(s string) { r.calls = append(r.calls, "type:"+s) }
func (r *recordingController) ClickPie(s string) { r.calls = append(r.calls, "pie:"+s) }
func (r *recordingController) ClearPie() { r.calls = append(r.calls, "pie-clear") }
func (r *recordingController) Refresh() { r.calls = append(r.calls, "refresh") }
func (r *recordingController) DeleteService(n string) { r.calls = append(r.calls, "rm:"+n) }
func (r *recordingController) ToggleFavourite(n string) {
	r.calls = append(r.calls, "fav:"+n)
}

func (r *recordingController) SetShowAll(on bool) {
	if on {
		r.calls = append(r.calls, "all:on")
		return
	}
	r.calls = append(r.calls, "all:off")
}

func (r *recordingController) SaveService(in client.ServiceInput) {
	r.saved = append(r.saved, in)
}

func TestDispatch(t *testing.T) {
	c := &recordingController{}
	lines := []string{
		"search internal crm",
		"search",
		"status Down",
		"type External",
		"pie Operational",
		"pie",
		"all off",
		"fav Internal CRM",
		"rm GitHub",
		"r",
		"",
	}
	for _, l := range lines {
		_, err := dispatch(l, c)
		require.NoError(t, err, l)
	}

	assert.Equal(t, []string{
		"search:internal crm", "search:", "status:Down", "type:External",
		"pie:Operational", "pie-clear", "all:off", "fav:Internal CRM", "rm:GitHub", "refresh",
	}, c.calls)
}

func TestDispatchSet(t *testing.T) {
	c := &recordingController{}

	_, err := dispatch("set Internal CRM | Internal | Down", c)
	require.NoError(t, err)
	assert.Equal(t, []client.ServiceInput{{Name: "Internal CRM", Type: "Internal", Status: "Down"}}, c.saved)

	_, err = dispatch("set Internal CRM", c)
	assert.Error(t, err)
}

func TestDispatchErrors(t *testing.T) {
	c := &recordingController{}

	_, err := dispatch("quit", c)
	assert.True(t, errors.Is(err, errQuit))

	_, err = dispatch("fly away", c)
	assert.ErrorContains(t, err, "unknown command")

	_, err = dispatch("fav", c)
	assert.Error(t, err)

	msg, err := dispatch("help", c)
	require.NoError(t, err)
	assert.Contains(t, msg, "commands:")
	assert.Empty(t, c.calls)
}

func TestScreenRenderPlain(t *testing.T) {
	var buf bytes.Buffer
	s := newScreen(&buf, false, false)
	s.header = "alice (user)"

	s.Render(client.View{
		Services: []domain.Service{
			{Name: "AWS", Type: domain.TypeExternal, Status: domain.StatusOperational, LastUpdated: "2024-05-01 15:00"},
			{Name: "GitHub", Type: domain.TypeExternal, Status: domain.StatusDown},
		},
		Summary:    reconcile.Summary{Total: 3, Counts: map[string]int{"Operational": 2, "Down": 1}},
		Filters:    reconcile.Filters{Search: "a"},
		Favourites: []string{"GitHub"},
	})

	out := buf.String()
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "ussm alice (user)")
	assert.Contains(t, out, `filters: search="a"`)
	assert.Contains(t, out, "2024-05-01 15:00")
	assert.Contains(t, out, "3 services: Operational 2")

	var starred string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "*") {
			starred = line
		}
	}
	assert.Contains(t, starred, "GitHub")
}

func TestScreenNotify(t *testing.T) {
	var buf bytes.Buffer
	s := newScreen(&buf, false, false)

	s.Notify(errors.New("add favourite: boom"))

	assert.Equal(t, "! add favourite: boom\n", buf.String())
}
