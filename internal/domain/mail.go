package domain

// ConflictsMailData 是冲突数量变化邮件的模板数据
type ConflictsMailData struct {
	TripName string
	Previous int
	Current  int
	Link     string
}

type SnapFailedMailData struct {
	TripName string
	Message  string
	Link     string
}
