package admin

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var commandsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_admin_commands_total",
	Help: "Admin commands executed, by command.",
}, []string{"command"})
