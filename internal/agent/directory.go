package agent

const (
	IDFrontend     = "vscode-copilot"
	IDBackend      = "codex-cli"
	IDIntegrations = "gemini-cli"
	IDArchitecture = "claude-cli"
)

// profiles is ordered; the scorer's tie-break takes the first max in this
// enumeration order.
var profiles = []Profile{
	{
		ID:             IDFrontend,
		Name:           "VSCode Copilot",
		Specialization: "Frontend Development",
		Skills: []string{
			"React Components",
			"JavaScript/TypeScript",
			"CSS/Styling",
			"UI/UX Design",
			"Client-side Logic",
			"Browser APIs",
			"Responsive Design",
		},
		PreferredTasks: []string{
			"Dashboard creation",
			"Form components",
			"User interfaces",
			"Frontend logic",
		},
	},
	{
		ID:             IDBackend,
		Name:           "Codex CLI",
		Specialization: "Backend Development",
		Skills: []string{
			"API Development",
			"Database Design",
			"Server Logic",
			"Authentication",
			"FastAPI/Flask",
			"SQL/Database Operations",
			"Server Configuration",
		},
		PreferredTasks: []string{
			"API endpoints",
			"Database schemas",
			"Server setup",
			"Backend services",
		},
	},
	{
		ID:             IDIntegrations,
		Name:           "Gemini CLI",
		Specialization: "Integrations & Queues",
		Skills: []string{
			"Third-party APIs",
			"Message Queues",
			"Webhooks",
			"Background Jobs",
			"External Services",
			"Async Processing",
			"Data Synchronization",
		},
		PreferredTasks: []string{
			"API integrations",
			"Queue systems",
			"Webhook handlers",
			"Background processing",
		},
	},
	{
		ID:             IDArchitecture,
		Name:           "Claude CLI",
		Specialization: "Architecture & Design",
		Skills: []string{
			"System Architecture",
			"Design Patterns",
			"Code Organization",
			"Documentation",
			"Best Practices",
			"Performance Optimization",
			"Security Review",
		},
		PreferredTasks: []string{
			"Architecture planning",
			"Code organization",
			"Documentation",
			"Design reviews",
		},
	},
}

// Directory is the read-only registry of worker agents.
type Directory struct{}

func NewDirectory() *Directory {
	return &Directory{}
}

func (d *Directory) List() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

func (d *Directory) Get(id string) (Profile, bool) {
	for _, p := range profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}
