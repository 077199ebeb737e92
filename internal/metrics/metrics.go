// Package metrics holds the Prometheus collectors of the approval workflows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var CommissionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gims_commission_transitions_total",
	Help: "The total number of commission status changes",
}, []string{"status"})

var VerificationUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gims_verification_updates_total",
	Help: "The total number of verification re-evaluations",
}, []string{"accepted"})

var ApprovalTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gims_site_approval_transitions_total",
	Help: "The total number of site approval status changes",
}, []string{"status"})

var IntegrityDowngrades = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gims_site_approval_integrity_downgrades_total",
	Help: "The total number of approvals overturned by a location change",
})

var RegistryChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gims_registry_visibility_changes_total",
	Help: "The total number of sites added to or removed from the public registry",
}, []string{"public"})

var NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gims_notifications_total",
	Help: "The total number of notifications by template and outcome",
}, []string{"template", "outcome"})

var RegistryCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gims_registry_cache_lookups_total",
	Help: "The total number of public registry cache lookups",
}, []string{"result"})
