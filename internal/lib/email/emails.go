package email

import "strconv"

// MenuChange describes a menu write for the staff notification.
type MenuChange struct {
	Action string
	MenuID int64
	Name   string
	Price  int
}

// SendMenuChangedEmail notifies staff that a menu item was created, updated or deleted.
func (c *Client) SendMenuChangedEmail(to string, change MenuChange) error {
	data := map[string]string{
		"Action": actionLabel(change.Action),
		"MenuID": strconv.FormatInt(change.MenuID, 10),
		"Name":   change.Name,
		"Price":  strconv.Itoa(change.Price),
	}

	return c.SendEmail(
		to,
		"[cafe-menu] 메뉴 변경 알림: "+change.Name,
		TemplateMenuChanged,
		data,
	)
}

func actionLabel(action string) string {
	switch action {
	case "created":
		return "생성"
	case "updated":
		return "수정"
	case "deleted":
		return "삭제"
	default:
		return action
	}
}
