package service

import (
	"time"

	"bin_monitoring/internal/logger"
	"bin_monitoring/internal/models"
)

// Publisher is the fanout the services report committed state changes to.
type Publisher interface {
	Publish(ev models.Event) int
}

type notifier struct {
	hub Publisher
	log *logger.Logger
}

func (n notifier) sensorUpdate(b models.Bin) {
	n.publish(models.Event{
		Type:  models.EventSensorUpdate,
		BinID: b.ID,
		Data: models.SensorUpdate{
			BinID:     b.ID,
			FillLevel: b.FillLevel,
			Status:    b.Status,
			Timestamp: b.UpdatedAt,
		},
	})
}

func (n notifier) request(typ string, req models.CollectionRequest) {
	n.publish(models.Event{Type: typ, BinID: req.BinID, Data: req})
}

func (n notifier) publish(ev models.Event) {
	if n.hub == nil {
		return
	}
	ev.OccurredAt = now()
	delivered := n.hub.Publish(ev)
	n.log.Debugw("event_published", "type", ev.Type, "bin_id", ev.BinID, "delivered", delivered)
}

var now = func() time.Time { return time.Now().UTC() }
