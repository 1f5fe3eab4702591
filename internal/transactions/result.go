package transactions

// Result is the outcome of one submission. The zero value is a success.
type Result struct {
	err error
}

func Success() Result {
	return Result{}
}

func Failure(err error) Result {
	return Result{err: err}
}

func (r Result) IsSuccess() bool {
	return r.err == nil
}

func (r Result) Err() error {
	return r.err
}

// Match calls exactly one of onSuccess or onFailure.
func (r Result) Match(onSuccess func(), onFailure func(err error)) {
	if r.err == nil {
		onSuccess()
		return
	}

	onFailure(r.err)
}

func (r Result) String() string {
	if r.err == nil {
		return "success"
	}

	return "failure: " + r.err.Error()
}
