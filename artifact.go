package hawk

// Artifact is the attribute set behind one Authorization header: the
// wire attributes (id, ts, nonce, hash, ext, mac, app, dlg) together
// with the request coordinates the MAC covers. A client constructs one
// fresh per request; a server parses one fresh per request. Artifacts
// are never reused across requests.
type Artifact struct {
	// ID is the credential key ID.
	ID string

	// Timestamp is seconds since the Unix epoch. For bewits it holds
	// the absolute expiry instead of the issue time.
	Timestamp int64

	// Nonce is the single-use replay token. Empty for bewits.
	Nonce string

	// Method, Resource, Host and Port locate the request. They are
	// covered by the MAC but never sent as header attributes.
	Method   string
	Resource string
	Host     string
	Port     string

	// Hash is the base64 payload hash, empty when payload validation
	// is not in use.
	Hash string

	// Ext is the application-specific extension string.
	Ext string

	// App and Dlg carry Oz-style delegation identifiers. Dlg is only
	// meaningful when App is present.
	App string
	Dlg string

	// MAC is the base64 keyed digest over the normalized string.
	MAC string
}
