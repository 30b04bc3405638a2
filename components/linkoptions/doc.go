// Package linkoptions exposes the resolved options of a link field as a
// small net/http JSON endpoint for client-side select widgets.
//
// The handler responds to GET and HEAD requests. The record type and field
// are read from the type and field query parameters; q and limit filter the
// results. Options are resolved within the caller's session, so tenant and
// department scoping match the server-rendered form. Component.Mount
// registers it on a gorilla/mux router; MountServeMux on http.ServeMux.
package linkoptions
