package ws

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadshape_toolkit/internal/config"
	"loadshape_toolkit/internal/database"
	"loadshape_toolkit/internal/electrification"
	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/store"
	"loadshape_toolkit/internal/timeseries"
)

const testDataset = "resstock-CA-all"

// testTable builds 2018 at hourly resolution plus the boundary row.
// Electricity peaks at 18:00 and gas heating runs at 07:00.
func testTable(t *testing.T) *timeseries.Table {
	t.Helper()
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	var ts []time.Time
	for cur := start; !cur.After(end); cur = cur.Add(time.Hour) {
		ts = append(ts, cur)
	}
	elec := make([]float64, len(ts))
	heat := make([]float64, len(ts))
	for i, cur := range ts {
		elec[i] = 1000
		switch cur.Hour() {
		case 18:
			elec[i] = 2000
		case 7:
			heat[i] = 1500
		}
	}

	tbl := timeseries.NewTable(ts)
	require.NoError(t, tbl.SetColumn(model.ColElectricityTotal, elec))
	require.NoError(t, tbl.SetColumn(model.ColNaturalGasHeating, heat))
	return tbl
}

// testStore creates a store holding one dataset for handler tests.
func testStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	require.NoError(t, s.Add(testDataset, testTable(t)))
	return s
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []*database.Run
	err  error
}

func (r *fakeRecorder) SaveRun(run *database.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	run.ID = "run-1"
	r.runs = append(r.runs, run)
	return nil
}

// dialHandler sets up a test server with the handler and returns a WS connection.
func dialHandler(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

// readJSON reads the next JSON message from the connection.
func readJSON(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

// sendJSON sends a JSON message on the connection.
func sendJSON(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := NewEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// connect dials the handler and drains the initial data:loaded message.
func connect(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	conn, cleanup := dialHandler(t, handler)
	env := readJSON(t, conn)
	require.Equal(t, TypeDataLoaded, env.Type)
	return conn, cleanup
}

func readError(t *testing.T, conn *websocket.Conn) ErrorPayload {
	t.Helper()
	env := readJSON(t, conn)
	require.Equal(t, TypeError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	return p
}

func TestHandler_InitialMessage(t *testing.T) {
	handler := NewHandler(NewHub(), testStore(t), nil, nil)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	env := readJSON(t, conn)
	assert.Equal(t, TypeDataLoaded, env.Type)

	var dl DataLoadedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &dl))
	require.Len(t, dl.Datasets, 1)
	ds := dl.Datasets[0]
	assert.Equal(t, testDataset, ds.Name)
	assert.Equal(t, []string{model.ColElectricityTotal, model.ColNaturalGasHeating}, ds.Columns)
	assert.Equal(t, 8761, ds.Rows)
	assert.Equal(t, 60.0, ds.IntervalMinutes)
	assert.Equal(t, "2018-01-01T00:00:00Z", ds.TimeRange.Start)
	assert.Equal(t, "2019-01-01T00:00:00Z", dl.TimeRange.End)
	assert.Len(t, dl.EndUses, len(model.EndUses))
}

func TestHandler_Projection(t *testing.T) {
	handler := NewHandler(NewHub(), testStore(t), nil, nil)
	conn, cleanup := connect(t, handler)
	defer cleanup()

	sendJSON(t, conn, TypeProjectionRequest, ProjectionRequestPayload{StudyYear: 2045})

	env := readJSON(t, conn)
	require.Equal(t, TypeProjectionResult, env.Type)

	var res ProjectionResultPayload
	require.NoError(t, json.Unmarshal(env.Payload, &res))
	assert.Equal(t, testDataset, res.Dataset)
	assert.Equal(t, 2045, res.StudyYear)
	require.Len(t, res.Hours, timeseries.HoursPerDay)
	assert.Equal(t, 23, res.Hours[23])
	require.Len(t, res.NewElectricityTotal, timeseries.HoursPerDay)
	assert.InDelta(t, 2500, *res.NewElectricityTotal[7], 1e-6)
	assert.InDelta(t, 2000, *res.ElectricityTotal[18], 1e-6)
	assert.InDelta(t, 1500, *res.NewSupply[7], 1e-6)
	assert.InDelta(t, 1, res.Fractions[string(model.EndUseSpaceHeating)], 1e-9)
	assert.InDelta(t, 1500*365/1e9, res.NewSupplyTWh, 1e-12)
	assert.Equal(t, 7, res.Summary.NewPeakHour)
	assert.Equal(t, 18, res.Summary.CurrentPeakHour)
	assert.Empty(t, res.RunID)
}

func TestHandler_ProjectionOverrides(t *testing.T) {
	handler := NewHandler(NewHub(), testStore(t), nil, nil)
	conn, cleanup := connect(t, handler)
	defer cleanup()

	sendJSON(t, conn, TypeProjectionRequest, ProjectionRequestPayload{
		Dataset:     testDataset,
		StudyYear:   2045,
		Aggregation: &AggregationPayload{Mode: "avg", Season: "summer", DayType: "weekday"},
		Timezone:    "PST",
		Curves: map[string]CurvePayload{
			string(model.EndUseSpaceHeating): {PeakYear: 2030, PeakRate: 50, Disabled: true},
		},
	})

	env := readJSON(t, conn)
	require.Equal(t, TypeProjectionResult, env.Type)
	var res ProjectionResultPayload
	require.NoError(t, json.Unmarshal(env.Payload, &res))

	assert.Equal(t, 15, res.Summary.CurrentPeakHour)
	assert.Equal(t, 15, res.Summary.NewPeakHour)
	assert.InDelta(t, 0, res.NewSupplyTWh, 1e-12)
	_, ok := res.Fractions[string(model.EndUseSpaceHeating)]
	assert.False(t, ok)
}

func TestHandler_PartialCurveOverrideKeepsEndUseEnabled(t *testing.T) {
	handler := NewHandler(NewHub(), testStore(t), nil, nil)
	conn, cleanup := connect(t, handler)
	defer cleanup()

	raw := `{"type":"projection:request","payload":{"study_year":2045,` +
		`"curves":{"space_heating":{"peak_year":2030}}}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))

	env := readJSON(t, conn)
	require.Equal(t, TypeProjectionResult, env.Type)
	var res ProjectionResultPayload
	require.NoError(t, json.Unmarshal(env.Payload, &res))

	assert.InDelta(t, 1, res.Fractions[string(model.EndUseSpaceHeating)], 1e-9)
	assert.InDelta(t, 1500*365/1e9, res.NewSupplyTWh, 1e-12)
	assert.Equal(t, 7, res.Summary.SupplyPeakHour)
}

func TestCurvePayload_Merge(t *testing.T) {
	base := electrification.CurveParams{PeakYear: 2031.5, PeakRate: 50, Enabled: true}

	assert.Equal(t, base, CurvePayload{}.merge(base))
	assert.Equal(t,
		electrification.CurveParams{PeakYear: 2040, PeakRate: 50, Enabled: true},
		CurvePayload{PeakYear: 2040}.merge(base))
	assert.Equal(t,
		electrification.CurveParams{PeakYear: 2031.5, PeakRate: 80, Enabled: false},
		CurvePayload{PeakRate: 80, Disabled: true}.merge(base))

	disabled := base
	disabled.Enabled = false
	assert.True(t, CurvePayload{}.merge(disabled).Enabled)
}

func TestHandler_ProjectionErrors(t *testing.T) {
	handler := NewHandler(NewHub(), testStore(t), nil, nil)
	conn, cleanup := connect(t, handler)
	defer cleanup()

	cases := []ProjectionRequestPayload{
		{Dataset: "missing", StudyYear: 2030},
		{StudyYear: 2030, Aggregation: &AggregationPayload{Mode: "median"}},
		{StudyYear: 2030, InitialYear: 2040, TargetYear: 2030},
		{StudyYear: 2030, Curves: map[string]CurvePayload{"lighting": {PeakRate: 10}}},
		{StudyYear: 2030, Timezone: "GMT"},
		{StudyYear: 2030, Save: true},
	}
	for _, req := range cases {
		sendJSON(t, conn, TypeProjectionRequest, req)
		p := readError(t, conn)
		assert.Equal(t, TypeProjectionRequest, p.Request)
		assert.NotEmpty(t, p.Message)
	}
}

func TestHandler_ProjectionSave(t *testing.T) {
	recorder := &fakeRecorder{}
	cfg := &config.Config{Timezone: model.TimezoneCST}
	handler := NewHandler(NewHub(), testStore(t), cfg, recorder)
	conn, cleanup := connect(t, handler)
	defer cleanup()

	sendJSON(t, conn, TypeProjectionRequest, ProjectionRequestPayload{StudyYear: 2030, Save: true})

	env := readJSON(t, conn)
	require.Equal(t, TypeProjectionResult, env.Type)
	var res ProjectionResultPayload
	require.NoError(t, json.Unmarshal(env.Payload, &res))
	assert.Equal(t, "run-1", res.RunID)

	env = readJSON(t, conn)
	require.Equal(t, TypeRunSaved, env.Type)
	var saved RunSavedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &saved))
	assert.Equal(t, "run-1", saved.ID)
	assert.Equal(t, 2030, saved.StudyYear)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.runs, 1)
	run := recorder.runs[0]
	assert.Equal(t, testDataset, run.Dataset)
	assert.Equal(t, "CST", run.Timezone)
	assert.Equal(t, "avg", run.Mode)
	require.NotNil(t, run.Summary)
	assert.Equal(t, res.Summary, *run.Summary)
	assert.Contains(t, run.Columns, model.ColNewElectricityTotal)
}

func TestHandler_ProjectionSaveFailure(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("disk full")}
	handler := NewHandler(NewHub(), testStore(t), nil, recorder)
	conn, cleanup := connect(t, handler)
	defer cleanup()

	sendJSON(t, conn, TypeProjectionRequest, ProjectionRequestPayload{StudyYear: 2030, Save: true})
	p := readError(t, conn)
	assert.Contains(t, p.Message, "disk full")
}

func TestHandler_AdoptionPath(t *testing.T) {
	handler := NewHandler(NewHub(), testStore(t), nil, nil)
	conn, cleanup := connect(t, handler)
	defer cleanup()

	sendJSON(t, conn, TypeAdoptionRequest, AdoptionRequestPayload{
		EndUse:      string(model.EndUseCooking),
		InitialYear: 2020,
		TargetYear:  2050,
		Curve:       &CurvePayload{PeakYear: 2035, PeakRate: 40},
	})

	env := readJSON(t, conn)
	require.Equal(t, TypeAdoptionPath, env.Type)
	var p AdoptionPathPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	require.Len(t, p.Years, 100)
	require.Len(t, p.Fractions, 100)
	assert.Equal(t, 2020.0, p.Years[0])
	assert.Equal(t, 2050.0, p.Years[99])
	assert.InDelta(t, 0, p.Fractions[0], 1e-12)
	assert.InDelta(t, 1, p.Fractions[99], 1e-12)

	sendJSON(t, conn, TypeAdoptionRequest, AdoptionRequestPayload{EndUse: "lighting"})
	assert.Equal(t, TypeAdoptionRequest, readError(t, conn).Request)
}

func TestHandler_UnknownAndInvalidMessages(t *testing.T) {
	handler := NewHandler(NewHub(), testStore(t), nil, nil)
	conn, cleanup := connect(t, handler)
	defer cleanup()

	sendJSON(t, conn, "sim:start", nil)
	p := readError(t, conn)
	assert.Equal(t, "sim:start", p.Request)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	p = readError(t, conn)
	assert.Empty(t, p.Request)
}

func TestHandler_AddDatasetBroadcasts(t *testing.T) {
	hub := NewHub()
	handler := NewHandler(hub, testStore(t), nil, nil)
	conn, cleanup := connect(t, handler)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, handler.AddDataset("second", testTable(t)))

	env := readJSON(t, conn)
	require.Equal(t, TypeDataLoaded, env.Type)
	var dl DataLoadedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &dl))
	require.Len(t, dl.Datasets, 2)
	assert.Equal(t, "second", dl.Datasets[1].Name)

	assert.Error(t, handler.AddDataset("", testTable(t)))
}
