package models

// LayoutItem is the position of a node in a diagram view.
type LayoutItem struct {
	View string  `json:"view" dynamodbav:"view"`
	ID   string  `json:"id" dynamodbav:"id"`
	X    float64 `json:"x" dynamodbav:"x"`
	Y    float64 `json:"y" dynamodbav:"y"`
}

// ChannelNode is a member node of a named channel tile.
type ChannelNode struct {
	Channel string `json:"channel" dynamodbav:"channel"`
	ID      string `json:"id" dynamodbav:"id"`
}

// Setting is an application setting stored under a key.
type Setting struct {
	ID    string `json:"id" dynamodbav:"id"`
	Value any    `json:"value" dynamodbav:"value"`
}
