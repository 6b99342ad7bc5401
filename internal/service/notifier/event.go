package notifier

import (
	"github.com/clinicore/clinic-api/internal/model"
)

// EventForStatus derives the lifecycle event from an appointment's
// current status. The mapping is ambiguous on purpose: REQUESTED is read
// as a reschedule even though it is also the state of a brand-new,
// never-confirmed request. Callers that know what actually happened
// should pass the event to AppointmentChanged directly; this table only
// serves the lifecycle hook, which has nothing but stored state to go on.
func EventForStatus(status model.AppointmentStatus) model.NotificationType {
	switch status {
	case model.AppointmentStatusProgrammed:
		return model.NotificationTypeCreation
	case model.AppointmentStatusCanceled:
		return model.NotificationTypeCancellation
	case model.AppointmentStatusRequested:
		return model.NotificationTypeReschedule
	default:
		return model.NotificationTypeOther
	}
}
