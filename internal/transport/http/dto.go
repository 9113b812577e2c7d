package http

type CreateRoomRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsPrivate   bool    `json:"isPrivate"`
}

type CreateMessageRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

type CreateImageMessageRequest struct {
	ImageURL string `json:"imageUrl"`
}

type AIResponseRequest struct {
	Prompt  string `json:"prompt"`
	Context int    `json:"context"`
}

type StatsResponse struct {
	OnlineUsers int `json:"onlineUsers"`
}
