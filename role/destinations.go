package role

// Well-known application routes that the session layer needs to reason
// about. The full routing table lives in the UI shell; only these three
// routes have meaning here.
const (
	LoginRoute        = "/login"
	UnauthorizedRoute = "/unauthorized"
	DefaultRoute      = "/dashboard"
)

// destinations maps every role to its default landing route after login.
var destinations = map[Role]string{
	SuperAdmin:     "/superadmin/dashboard",
	ChefDossier:    "/chef-dossier/dashboard",
	AgentDossier:   "/agent-dossier/dashboard",
	ChefJuridique:  "/chef-juridique/dashboard",
	AgentJuridique: "/agent-juridique/dashboard",
	ChefAmiable:    "/chef-amiable/dashboard",
	AgentAmiable:   "/agent-amiable/dashboard",
	ChefFinance:    "/chef-finance/dashboard",
	AgentFinance:   "/agent-finance/dashboard",
}

// labels maps every role to its display label.
var labels = map[Role]string{
	SuperAdmin:     "Super administrateur",
	ChefDossier:    "Chef du département dossier",
	AgentDossier:   "Agent dossier",
	ChefJuridique:  "Chef du recouvrement juridique",
	AgentJuridique: "Agent recouvrement juridique",
	ChefAmiable:    "Chef du recouvrement amiable",
	AgentAmiable:   "Agent recouvrement amiable",
	ChefFinance:    "Chef du département finance",
	AgentFinance:   "Agent finance",
}

// DestinationFor returns the landing route for the role. It is total: a
// role outside the map (unreachable through Parse/Normalize) yields the
// generic dashboard rather than an error.
func DestinationFor(r Role) string {
	if dest, ok := destinations[r]; ok {
		return dest
	}
	return DefaultRoute
}

// LabelFor returns the display label for the role, or the raw role string
// when no label is registered.
func LabelFor(r Role) string {
	if label, ok := labels[r]; ok {
		return label
	}
	return string(r)
}
