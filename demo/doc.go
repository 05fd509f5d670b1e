// Package demo assembles the demo bundle deployed as a PR preview.
//
// Every directory under the demo root that contains a run.py is a demo.
// The Assembler copies the selected demos into a staging directory and
// writes the files the hosting platform needs to serve them together:
//
//	requirements.txt  wheel URL first, then each demo's own requirements
//	app.py            one tab per demo
//	README.md         Space front-matter
//
// app.py and README.md are rendered from templates. A project can override
// either by placing app.py.tmpl or README.md.tmpl in .prdeploy/templates/.
package demo
