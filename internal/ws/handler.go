package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"loadshape_toolkit/internal/analysis"
	"loadshape_toolkit/internal/config"
	"loadshape_toolkit/internal/database"
	"loadshape_toolkit/internal/electrification"
	"loadshape_toolkit/internal/forecast"
	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/store"
	"loadshape_toolkit/internal/timeseries"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RunRecorder persists projection results requested with save set.
type RunRecorder interface {
	SaveRun(run *database.Run) error
}

// Handler manages WebSocket connections and answers projection requests
// against the datasets in the store.
type Handler struct {
	hub      *Hub
	store    *store.Store
	cfg      *config.Config
	recorder RunRecorder
	bridge   *Bridge
}

// NewHandler creates a handler. cfg supplies defaults for omitted request
// fields; recorder may be nil, in which case save requests are refused.
func NewHandler(hub *Hub, st *store.Store, cfg *config.Config, recorder RunRecorder) *Handler {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Handler{hub: hub, store: st, cfg: cfg, recorder: recorder, bridge: NewBridge(hub)}
}

// AddDataset registers a table and announces the new dataset list to every
// connected client.
func (h *Handler) AddDataset(name string, t *timeseries.Table) error {
	if err := h.store.Add(name, t); err != nil {
		return err
	}
	msg, err := h.dataLoadedMessage()
	if err != nil {
		return fmt.Errorf("creating data:loaded message: %w", err)
	}
	h.hub.Broadcast(msg)
	return nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	// Send initial data:loaded message
	h.sendDataLoaded(client)

	// Read messages from client
	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Printf("Invalid message: %v", err)
		h.sendError(c, "", fmt.Errorf("invalid message: %w", err))
		return
	}

	switch env.Type {
	case TypeProjectionRequest:
		var p ProjectionRequestPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("Invalid projection payload: %v", err)
			h.sendError(c, env.Type, err)
			return
		}
		result, err := h.project(p)
		if err != nil {
			log.Printf("Projection failed: %v", err)
			h.sendError(c, env.Type, err)
			return
		}
		h.send(c, TypeProjectionResult, result)

	case TypeAdoptionRequest:
		var p AdoptionRequestPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("Invalid adoption payload: %v", err)
			h.sendError(c, env.Type, err)
			return
		}
		path, err := h.adoptionPath(p)
		if err != nil {
			h.sendError(c, env.Type, err)
			return
		}
		h.send(c, TypeAdoptionPath, path)

	default:
		log.Printf("Unknown message type: %s", env.Type)
		h.sendError(c, env.Type, fmt.Errorf("unknown message type %q", env.Type))
	}
}

func (h *Handler) project(p ProjectionRequestPayload) (*ProjectionResultPayload, error) {
	name := p.Dataset
	if name == "" {
		names := h.store.Names()
		if len(names) == 0 {
			return nil, errors.New("no dataset loaded")
		}
		name = names[0]
	}
	table, ok := h.store.Table(name)
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}

	params, err := h.params(p)
	if err != nil {
		return nil, err
	}
	res, err := forecast.Run(table, params)
	if err != nil {
		return nil, err
	}

	ls := res.Loadshape
	out := &ProjectionResultPayload{
		Dataset:             name,
		StudyYear:           res.StudyYear,
		Hours:               make([]int, timeseries.HoursPerDay),
		ElectricityTotal:    nullableColumn(ls, model.ColElectricityTotal),
		NewElectricityTotal: nullableColumn(ls, model.ColNewElectricityTotal),
		NewSupply:           nullableColumn(ls, model.ColNewSupply),
		Fractions:           make(map[string]float64, len(res.Projection.Fractions)),
		NewSupplyTWh:        res.NewSupplyKWh / 1e9,
		Summary:             res.Summary,
	}
	for i := range out.Hours {
		out.Hours[i] = i
	}
	for eu, f := range res.Projection.Fractions {
		out.Fractions[string(eu)] = f
	}

	if p.Save {
		if h.recorder == nil {
			return nil, errors.New("saving runs is not enabled on this server")
		}
		run := database.NewRun(name, params.Spec, ls)
		run.StudyYear = res.StudyYear
		run.Timezone = string(params.Timezone)
		summary := res.Summary
		run.Summary = &summary
		if err := h.recorder.SaveRun(run); err != nil {
			return nil, fmt.Errorf("saving run: %w", err)
		}
		out.RunID = run.ID
		h.bridge.OnRunSaved(run)
	}
	return out, nil
}

// params merges a request over the config defaults.
func (h *Handler) params(p ProjectionRequestPayload) (forecast.Params, error) {
	initial, target, study := h.cfg.Years()
	if p.InitialYear != 0 {
		initial = p.InitialYear
	}
	if p.TargetYear != 0 {
		target = p.TargetYear
	}
	if p.StudyYear != 0 {
		study = p.StudyYear
	}

	cfg := *h.cfg
	cfg.Scenario.InitialYear, cfg.Scenario.TargetYear = initial, target
	if p.Aggregation != nil {
		cfg.Aggregation = config.AggregationConfig(*p.Aggregation)
	}
	spec, err := cfg.AggregationSpec()
	if err != nil {
		return forecast.Params{}, err
	}

	curves := cfg.CurveParams()
	for name, c := range p.Curves {
		eu := model.EndUse(name)
		if !eu.IsValid() {
			return forecast.Params{}, fmt.Errorf("%w %q", electrification.ErrUnknownEndUse, name)
		}
		curves[eu] = c.merge(curves[eu])
	}

	tz := h.cfg.Timezone
	if p.Timezone != "" {
		tz = model.Timezone(p.Timezone)
	}

	return forecast.Params{
		InitialYear: initial,
		TargetYear:  target,
		StudyYear:   study,
		Curves:      curves,
		Spec:        spec,
		Timezone:    tz,
	}, nil
}

func (h *Handler) adoptionPath(p AdoptionRequestPayload) (*AdoptionPathPayload, error) {
	eu := model.EndUse(p.EndUse)
	if !eu.IsValid() {
		return nil, fmt.Errorf("%w %q", electrification.ErrUnknownEndUse, p.EndUse)
	}

	initial, target, _ := h.cfg.Years()
	if p.InitialYear != 0 {
		initial = p.InitialYear
	}
	if p.TargetYear != 0 {
		target = p.TargetYear
	}

	cfg := *h.cfg
	cfg.Scenario.InitialYear, cfg.Scenario.TargetYear = initial, target
	curve := cfg.CurveParams()[eu]
	if p.Curve != nil {
		curve = p.Curve.merge(curve)
	}

	years, fractions, err := electrification.AdoptionPath(curve, initial, target)
	if err != nil {
		return nil, err
	}
	return &AdoptionPathPayload{EndUse: p.EndUse, Years: years, Fractions: fractions}, nil
}

func (h *Handler) dataLoadedMessage() ([]byte, error) {
	payload := DataLoadedPayload{Datasets: []DatasetInfo{}}
	for _, eu := range model.EndUses {
		payload.EndUses = append(payload.EndUses, string(eu))
	}

	for _, name := range h.store.Names() {
		t, ok := h.store.Table(name)
		if !ok {
			continue
		}
		info := DatasetInfo{
			Name:    name,
			Columns: t.Columns,
			Rows:    t.Len(),
		}
		if tr, ok := t.TimeRange(); ok {
			info.TimeRange = timeRangeInfo(tr)
		}
		if interval, err := timeseries.DetectInterval(t.Timestamps); err == nil {
			info.IntervalMinutes = interval.Minutes()
		}
		payload.Datasets = append(payload.Datasets, info)
	}
	if tr, ok := h.store.GlobalTimeRange(); ok {
		payload.TimeRange = timeRangeInfo(tr)
	}

	return NewEnvelope(TypeDataLoaded, payload)
}

func (h *Handler) sendDataLoaded(c *Client) {
	msg, err := h.dataLoadedMessage()
	if err != nil {
		log.Printf("Error creating data:loaded message: %v", err)
		return
	}
	c.trySend(msg)
}

func (h *Handler) send(c *Client, msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		log.Printf("Error marshaling %s: %v", msgType, err)
		return
	}
	if !c.trySend(msg) {
		log.Printf("client buffer full, dropping %s", msgType)
	}
}

func (h *Handler) sendError(c *Client, request string, err error) {
	h.send(c, TypeError, ErrorPayload{Request: request, Message: err.Error()})
}

func nullableColumn(ls *timeseries.Loadshape, col string) []*float64 {
	v, _ := ls.Column(col)
	return analysis.Nullable(v)
}
