package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameCardsCreated   = "cards_created_total"
	NameCardsUpdated   = "cards_updated_total"
	NameCardsDeleted   = "cards_deleted_total"
	NameCardOperations = "card_operation_failures_total"
	NameUploadFailures = "upload_failures_total"
	LabelOperation     = "operation"
	LabelReason        = "reason"
	LabelKind          = "kind"
)

var CardsCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameCardsCreated,
		Help:      "Total cards created",
		Namespace: Namespace,
	},
)

var CardsUpdated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameCardsUpdated,
		Help:      "Total cards updated",
		Namespace: Namespace,
	},
)

var CardsDeleted = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      NameCardsDeleted,
		Help:      "Total cards deleted",
		Namespace: Namespace,
	},
)

var CardOperationFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameCardOperations,
		Help:      "Card gateway calls that failed, by operation and reason",
		Namespace: Namespace,
	},
	[]string{LabelOperation, LabelReason},
)

var UploadFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameUploadFailures,
		Help:      "Image uploads rejected by object storage",
		Namespace: Namespace,
	},
	[]string{LabelKind},
)
