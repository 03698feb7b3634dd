package circulation

// Kind classifies a coordinator outcome. The set is closed: the HTTP layer
// only looks at Status, but logs and tests distinguish outcomes by Kind
// instead of matching on message text.
type Kind string

const (
	KindOK             Kind = "ok"
	KindUnknownUser    Kind = "unknown_user"
	KindDuplicateLoan  Kind = "duplicate_loan"
	KindUnknownBook    Kind = "unknown_book"
	KindNoCopies       Kind = "no_copies"
	KindInvalidDueDate Kind = "invalid_due_date"
	KindNoActiveLoan   Kind = "no_active_loan"
	KindInternal       Kind = "internal"
)

// Result is the terminal outcome of one borrow or return call. Expected
// domain failures are values, never errors, so callers branch on Status
// without inspecting error types.
type Result struct {
	Status  bool   `json:"status"`
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
}

func success(message string) Result {
	return Result{Status: true, Kind: KindOK, Message: message}
}

func failure(kind Kind, message string) Result {
	return Result{Status: false, Kind: kind, Message: message}
}

// User-facing outcome messages. The wording is part of the API contract.
const (
	MsgUserNotAllowed   = "This user is not allowed to borrow a book."
	MsgAlreadyBorrowing = "You are already borrowing a copy of this book."
	MsgBookMissing      = "The requested book does not exist or may have been deleted."
	MsgNoCopiesLeft     = "There are no more copies left to borrow of this book."
	MsgDueDateInPast    = "The due date must be in the future."
	MsgNotBorrowed      = "You have not borrowed this book."
	MsgBorrowFailed     = "An error occurred while borrowing the book. Please try again later."
	MsgReturnFailed     = "An error occurred while returning the book. Please try again later."
	MsgBorrowSuccess    = "You have successfully borrowed this book."
	MsgReturnSuccess    = "You have successfully returned the book."
)
