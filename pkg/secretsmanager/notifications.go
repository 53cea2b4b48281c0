package secretsmanager

import (
	"context"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

type CreateNotificationsRegistrationOptions struct {
	EventNotificationsInstanceCrn       string
	EventNotificationsSourceName        string
	EventNotificationsSourceDescription string
	Headers                             map[string]string
}

// NotificationsOptions carries only headers; the registration is per instance.
type NotificationsOptions struct {
	Headers map[string]string
}

func (o *NotificationsOptions) bag() operation.Bag {
	if o == nil {
		return operation.Bag{}
	}
	return operation.Bag{}.WithHeaders(o.Headers)
}

// CreateNotificationsRegistration registers the instance as a source with
// an Event Notifications instance.
func (s *Service) CreateNotificationsRegistration(ctx context.Context, o *CreateNotificationsRegistrationOptions) (*Response[NotificationsCollection], error) {
	if o == nil {
		o = &CreateNotificationsRegistrationOptions{}
	}
	bag := operation.Bag{
		"eventNotificationsInstanceCrn":       o.EventNotificationsInstanceCrn,
		"eventNotificationsSourceName":        o.EventNotificationsSourceName,
		"eventNotificationsSourceDescription": o.EventNotificationsSourceDescription,
	}
	return call[NotificationsCollection](ctx, s, CreateNotificationsRegistration, bag.WithHeaders(o.Headers))
}

func (s *Service) GetNotificationsRegistration(ctx context.Context, o *NotificationsOptions) (*Response[NotificationsCollection], error) {
	return call[NotificationsCollection](ctx, s, GetNotificationsRegistration, o.bag())
}

func (s *Service) DeleteNotificationsRegistration(ctx context.Context, o *NotificationsOptions) (*Response[struct{}], error) {
	return call[struct{}](ctx, s, DeleteNotificationsRegistration, o.bag())
}

// SendTestNotification asks the service to emit a test event to the
// registered Event Notifications instance.
func (s *Service) SendTestNotification(ctx context.Context, o *NotificationsOptions) (*Response[struct{}], error) {
	return call[struct{}](ctx, s, SendTestNotification, o.bag())
}
