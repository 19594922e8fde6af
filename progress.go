package cerebras

// Progress receives progress notifications while a generation is in flight.
// The library renders nothing on its own; configure a sink with WithProgress
// (for example ui.NewSpinner) to get a terminal indicator.
type Progress interface {
	// Start is called once before the request is sent. The label describes
	// the delivery mode ("generating" or "streaming").
	Start(label string)

	// Advance is called as generated text arrives, with the number of
	// characters received since the previous call.
	Advance(n int)

	// Finish is called exactly once when the call completes. err is nil on
	// success and the surfaced failure otherwise.
	Finish(err error)
}

func (c *Client) startProgress(label string) {
	if c.progress != nil {
		c.progress.Start(label)
	}
}

func (c *Client) advanceProgress(n int) {
	if c.progress != nil && n > 0 {
		c.progress.Advance(n)
	}
}

func (c *Client) finishProgress(err error) {
	if c.progress != nil {
		c.progress.Finish(err)
	}
}
