package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/trellis-web/trellis"
)

type postAPI struct {
	posts []string
}

func (api *postAPI) Routes() []trellis.RouteDef {
	return []trellis.RouteDef{
		{Method: trellis.GET, Path: "/list", Handler: trellis.HandlerFunc(api.list)},
		{Method: trellis.POST, Path: "/new", Handler: trellis.HandlerFunc(api.create)},
		{Method: trellis.GET, Path: "/:id", Handler: trellis.HandlerFunc(api.show)},
	}
}

func (api *postAPI) list(req *trellis.Request, res *trellis.Response) {
	res.JSON(api.posts)
}

func (api *postAPI) create(req *trellis.Request, res *trellis.Response) {
	body, err := req.Body(context.Background())
	if err != nil {
		res.Status(500).Text("unable to read body")
		return
	}
	api.posts = append(api.posts, string(body))
	res.Status(201).JSON(map[string]int{"id": len(api.posts) - 1})
}

func (api *postAPI) show(req *trellis.Request, res *trellis.Response) {
	var id int
	fmt.Sscanf(req.Param("id"), "%d", &id)
	if id < 0 || id >= len(api.posts) {
		res.Status(404).Text("no such post")
		return
	}
	res.Text(api.posts[id])
}

func main() {
	srv := trellis.New()

	srv.Use(trellis.RequestLogger())
	srv.Use(trellis.Sessions(trellis.NewMemorySessionStore()))
	srv.Use(trellis.Static("/public", "./public"))

	srv.Get("/", trellis.HandlerFunc(func(req *trellis.Request, res *trellis.Response) {
		res.HTML("<html><body><h1>Hello from trellis</h1></body></html>")
	}))

	// Per-session page view counter.
	srv.Get("/views", trellis.HandlerFunc(func(req *trellis.Request, res *trellis.Response) {
		count, _ := req.Session.Get("views").(int)
		count++
		req.Session.Set("views", count)
		if err := req.Session.Save(); err != nil {
			log.Println("saving session:", err)
		}
		res.Text(fmt.Sprintf("you have loaded this page %d times", count))
	}))

	// Websocket echo endpoint (shout it back).
	srv.Get("/echo", trellis.HandlerFunc(func(req *trellis.Request, res *trellis.Response) {
		err := trellis.Upgrade(req, res, func(req *trellis.Request, in <-chan []byte) <-chan []byte {
			out := make(chan []byte)
			go func() {
				defer close(out)
				for msg := range in {
					out <- []byte(strings.ToUpper(string(msg)))
				}
			}()
			return out
		})
		if err != nil {
			log.Println("websocket:", err)
		}
	}))

	// Blog-style API mounted under its own prefix.
	api := &postAPI{posts: []string{"first post"}}
	srv.Mount("/posts", trellis.BuildRouter(api))

	host, port, err := srv.Start(srv.Config.ListenAddr)
	if err != nil {
		log.Fatal("unable to start server: ", err)
	}
	log.Printf("listening on %s:%d", host, port)
	select {}
}
