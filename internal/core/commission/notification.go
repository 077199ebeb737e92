package commission

// TemplateCommissionChange is the notification template for commission
// status changes.
const TemplateCommissionChange = "CommissionStatusChange"

// NotificationData composes the template data of a commission change
// notification.
func NotificationData(organisationName string, status Status, reason Reason) map[string]string {
	data := map[string]string{
		"organisation": organisationName,
		"status":       string(status),
		"reason":       "-",
	}
	if reason != ReasonNone {
		data["reason"] = string(reason)
	}
	return data
}
