package irc

// IRC replies handled by the session.
const (
	rplTopic      = "332" // <client> <channel> :<topic>
	rplNamreply   = "353" // <client> <=/*/@> <channel> :1*(@/ /+user)
	rplEndofnames = "366" // <client> <channel> :End of names list
)
