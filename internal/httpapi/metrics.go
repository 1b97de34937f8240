package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yarn_orders_placed_total",
		Help: "Orders successfully placed.",
	})

	cartMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yarn_cart_mutations_total",
		Help: "Cart write operations by kind.",
	}, []string{"op"})

	imageUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yarn_image_uploads_total",
		Help: "Product images uploaded by admins.",
	})
)
