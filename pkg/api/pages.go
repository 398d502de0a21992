package api

import (
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
)

// pageTemplate is the minimal HTML shell for the browser-navigated
// pages; the real UI is rendered client side against /api
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}} - Vetrina</title>
</head>
<body>
  <div id="app" data-page="{{.Page}}"></div>
  <script src="/static/app.js"></script>
</body>
</html>
`))

type pageData struct {
	Title string
	Page  string
}

func servePage(title, page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		pageTemplate.Execute(w, pageData{Title: title, Page: page})
	}
}

// registerPages registers the gated HTML pages. Route classification
// happens in the gate middleware; these handlers only render shells.
func registerPages(router *mux.Router) {
	router.HandleFunc("/", servePage("Home", "home")).Methods("GET")
	router.HandleFunc("/login", servePage("Sign in", "login")).Methods("GET")
	router.HandleFunc("/dashboard", servePage("Dashboard", "dashboard")).Methods("GET")
	router.PathPrefix("/products").HandlerFunc(servePage("Products", "products")).Methods("GET")
	router.HandleFunc("/cart", servePage("Cart", "cart")).Methods("GET")
	router.HandleFunc("/orders", servePage("Orders", "orders")).Methods("GET")
	router.PathPrefix("/admin").HandlerFunc(servePage("Admin", "admin")).Methods("GET")
}
