package listview

import (
	"net/url"
)

// RouteKind names the view a selection leads to.
type RouteKind string

const (
	RouteEdit  RouteKind = "edit"
	RouteBook  RouteKind = "book"
	RouteLogin RouteKind = "login"
)

// Route is a navigation target outside the list.
type Route struct {
	Kind  RouteKind
	Path  string
	CarID string
}

// LoginPath is where guests are sent when they try to book.
const LoginPath = "/login"

func editRoute(id string) Route {
	return Route{Kind: RouteEdit, Path: "/update-car/" + url.PathEscape(id), CarID: id}
}

func bookRoute(id string) Route {
	return Route{Kind: RouteBook, Path: "/book/" + url.PathEscape(id), CarID: id}
}

func loginRoute() Route {
	return Route{Kind: RouteLogin, Path: LoginPath}
}
