package models

// Mutation is the result of a successful write: the id of the document
// written and the page path the rendering layer should revalidate. An empty
// Revalidate means no refresh is needed.
type Mutation struct {
	ID         string `json:"id"`
	Revalidate string `json:"revalidate"`
}
