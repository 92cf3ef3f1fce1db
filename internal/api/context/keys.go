package context

type Key string

const (
	User   Key = "user"
	Token  Key = "token"
	Params Key = "params"
)
