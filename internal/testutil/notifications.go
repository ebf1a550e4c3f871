package testutil

import (
	"sync"

	"smmpanel/internal/models"
	"smmpanel/internal/repositories"
)

// NotificationStore is an in-memory NotificationRepository with the same
// (order, event) uniqueness the real table enforces.
type NotificationStore struct {
	mu            sync.Mutex
	notifications []models.Notification
	nextID        uint
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) CreateNotification(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.notifications {
		if existing.OrderID != nil && n.OrderID != nil &&
			*existing.OrderID == *n.OrderID && existing.Event == n.Event {
			return repositories.ErrDuplicateKey
		}
	}
	s.nextID++
	n.ID = s.nextID
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *NotificationStore) ListByUser(userID uint, limit, offset int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID == userID {
			all = append(all, s.notifications[i])
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Count returns the number of stored notifications.
func (s *NotificationStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

var _ repositories.NotificationRepository = (*NotificationStore)(nil)
