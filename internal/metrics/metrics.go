package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingAdmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carrental_booking_admissions_total",
		Help: "Booking admission attempts by outcome",
	}, []string{"outcome"})

	BookingCancellations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carrental_booking_cancellations_total",
		Help: "Cancelled bookings by the role that cancelled them",
	}, []string{"role"})

	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carrental_notifications_dispatched_total",
		Help: "Outbox messages handed to the notifier by final status",
	}, []string{"status"})
)
