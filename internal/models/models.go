package models

// All lists every model for migrations, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Admin{},
		&Tester{},
		&Bug{},
		&Comment{},
		&Screenshot{},
		&Notification{},
		&ActivityHistory{},
	}
}
