package field

// DefaultCatalog is the tech stack shown when no labels are configured.
var DefaultCatalog = []string{
	"HTML5", "CSS3", "JavaScript", "React JS", "Framer", "Bootstrap", "Figma",
	"Redux Toolkit", "Tailwind CSS", "Storybook UI", "T3-App", "Firebase",
	"Next.js", "FastAPI", "DaisyUI", "Node.js", "Express.js", "AWS",
	"MongoDB", "MySQL", "Git", "PostgreSQL", "MSSQL", "GSAP", "Three.js",
}

// Catalog returns a copy of labels, or of DefaultCatalog when labels is nil.
func Catalog(labels []string) []string {
	if labels == nil {
		labels = DefaultCatalog
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}
