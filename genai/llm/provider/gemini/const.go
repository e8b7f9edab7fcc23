package gemini

const geminiEndpoint = "https://generativelanguage.googleapis.com/%v/models"

const defaultModel = "gemini-2.0-flash"
