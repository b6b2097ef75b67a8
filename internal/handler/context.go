package handler

type ContextKey string

var (
	TripCtx  ContextKey = "trip"
	EntryCtx ContextKey = "entry"
)
