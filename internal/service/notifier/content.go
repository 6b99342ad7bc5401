package notifier

import (
	"fmt"

	"github.com/clinicore/clinic-api/internal/model"
)

const bodyDateLayout = "02/01/2006 15:04"

// Title returns the push title for a lifecycle event.
func Title(event model.NotificationType) string {
	switch event {
	case model.NotificationTypeCreation:
		return "Nueva Cita"
	case model.NotificationTypeCancellation:
		return "Cita Cancelada"
	case model.NotificationTypeReschedule:
		return "Cita Reagendada"
	default:
		return "Notificación"
	}
}

// Body renders the per-role sentence for an event. It is pure and never
// fails: unknown combinations fall back to a generic sentence.
func Body(appointment *model.Appointment, typeName string, event model.NotificationType, role model.UserRole) string {
	if typeName == "" {
		typeName = "consulta"
	}
	when := appointment.DateHour.Format(bodyDateLayout)

	switch event {
	case model.NotificationTypeCreation:
		switch role {
		case model.UserRoleDoctor:
			return fmt.Sprintf("Se ha programado una nueva cita de %s para el %s.", typeName, when)
		case model.UserRolePatient:
			return fmt.Sprintf("Su cita de %s ha sido agendada para el %s.", typeName, when)
		case model.UserRoleSecretary:
			return fmt.Sprintf("Se registró una nueva cita de %s para el %s.", typeName, when)
		}
	case model.NotificationTypeCancellation:
		switch role {
		case model.UserRoleDoctor:
			return fmt.Sprintf("La cita de %s del %s ha sido cancelada.", typeName, when)
		case model.UserRolePatient:
			return fmt.Sprintf("Su cita de %s del %s ha sido cancelada.", typeName, when)
		case model.UserRoleSecretary:
			return fmt.Sprintf("Se canceló la cita de %s programada para el %s.", typeName, when)
		}
	case model.NotificationTypeReschedule:
		switch role {
		case model.UserRoleDoctor:
			return fmt.Sprintf("La cita de %s fue reagendada para el %s.", typeName, when)
		case model.UserRolePatient:
			return fmt.Sprintf("Su cita de %s fue reagendada para el %s.", typeName, when)
		case model.UserRoleSecretary:
			return fmt.Sprintf("Se reagendó la cita de %s para el %s.", typeName, when)
		}
	}

	return fmt.Sprintf("Tiene una notificación sobre su cita de %s del %s.", typeName, when)
}
