package ports

type VoteMetrics interface {
	IdeaSubmitted()
	VoteCast()
	VoteRemoved()
	VoteRejected(reason string)
}

type NopMetrics struct{}

func (NopMetrics) IdeaSubmitted()      {}
func (NopMetrics) VoteCast()           {}
func (NopMetrics) VoteRemoved()        {}
func (NopMetrics) VoteRejected(string) {}
