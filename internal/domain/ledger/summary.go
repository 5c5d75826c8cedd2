package ledger

// Summary is the per-participant statistics view disclosed to admins and
// through the self-service stats action.
type Summary struct {
	ParticipantID     ID       `json:"participant_id"`
	Events            []string `json:"events"`
	Winners           []string `json:"winners"`
	JoinedCount       int      `json:"joined_count"`
	WonCount          int      `json:"won_count"`
	TotalMessageCount int      `json:"total_message_count"`
	ArtCount          int      `json:"art_count"`
	TwitterLinkCount  int      `json:"twitter_link_count"`
}

func (r *Record) Summary(id ID) Summary {
	events := displayNames(r.Events())
	winners := displayNames(r.Winners())
	return Summary{
		ParticipantID:     id,
		Events:            events,
		Winners:           winners,
		JoinedCount:       len(events),
		WonCount:          len(winners),
		TotalMessageCount: r.TotalMessageCount,
		ArtCount:          r.ArtCount,
		TwitterLinkCount:  len(r.TwitterLinks),
	}
}
