package book

type Comment struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type Book struct {
	ID          string    `json:"id"`
	ISBN        string    `json:"isbn" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Subtitle    string    `json:"subtitle" validate:"required"`
	Author      string    `json:"author" validate:"required"`
	Published   string    `json:"published" validate:"required"`
	Publisher   string    `json:"publisher" validate:"required"`
	Pages       int       `json:"pages" validate:"required,gt=0"`
	Description string    `json:"description" validate:"required"`
	Website     string    `json:"website" validate:"required"`
	Comments    []Comment `json:"comments"`
}

func (b Book) GetID() string { return b.ID }

// Patch is a partial update. Nil fields keep the stored value.
type Patch struct {
	ID          string     `json:"id,omitempty"`
	ISBN        *string    `json:"isbn,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Subtitle    *string    `json:"subtitle,omitempty"`
	Author      *string    `json:"author,omitempty"`
	Published   *string    `json:"published,omitempty"`
	Publisher   *string    `json:"publisher,omitempty"`
	Pages       *int       `json:"pages,omitempty"`
	Description *string    `json:"description,omitempty"`
	Website     *string    `json:"website,omitempty"`
	Comments    *[]Comment `json:"comments,omitempty"`
}

// Apply returns b with every field set in p overwritten. The id never
// changes.
func (p Patch) Apply(b Book) Book {
	setString(&b.ISBN, p.ISBN)
	setString(&b.Title, p.Title)
	setString(&b.Subtitle, p.Subtitle)
	setString(&b.Author, p.Author)
	setString(&b.Published, p.Published)
	setString(&b.Publisher, p.Publisher)
	setString(&b.Description, p.Description)
	setString(&b.Website, p.Website)
	if p.Pages != nil {
		b.Pages = *p.Pages
	}
	if p.Comments != nil {
		b.Comments = append([]Comment{}, (*p.Comments)...)
	}
	return b
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

type CommentRequest struct {
	Message string `json:"message"`
}

type DeleteResponse struct {
	ID string `json:"id"`
}
