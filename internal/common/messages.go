package common

// Replies shared by every handler.
const (
	// MsgGroupOnly is sent to any message coming from a non-group chat.
	MsgGroupOnly = "⚠️ Este bot funciona apenas em grupos!"
	// MsgStorageFailure is the apology for a transient storage failure.
	MsgStorageFailure = "⚠️ Não consegui acessar o ranking agora. Tente novamente em instantes."
	// MsgUnexpected is the reply when a handler panicked.
	MsgUnexpected = "⚠️ Algo deu errado. Tente novamente mais tarde."
)
