package render

// articleTemplate is the single-page article layout. Section bodies are
// trusted fragments: they come out of the post-processor, never from
// user input.
const articleTemplate = `<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Article.Headline}}</title>
<meta name="description" content="{{.Article.MetaDescription}}">
<meta property="og:title" content="{{.Article.Headline}}">
<meta property="og:description" content="{{.Article.MetaDescription}}">
<meta property="og:type" content="article">
<meta property="article:published_time" content="{{.PublishedISO}}">
<script type="application/ld+json">{{.JSONLD}}</script>
</head>
<body>
<article>
<h1>{{.Article.Headline}}</h1>
{{- if .Article.Author}}
<p class="byline">By {{.Article.Author}} · <time datetime="{{.PublishedISO}}">{{.PublishedDate}}</time></p>
{{- else}}
<p class="byline"><time datetime="{{.PublishedISO}}">{{.PublishedDate}}</time></p>
{{- end}}
{{- with .HeroImage}}
<figure class="hero"><img src="{{.URL}}" alt="{{.Alt}}"></figure>
{{- end}}
<p class="lead">{{.Article.Lead | cite}}</p>
{{- if .Article.TOC}}
<nav class="toc">
<h2>Contents</h2>
<ul>
{{- range .Article.TOC}}
<li><a href="#{{.Anchor}}">{{.Label}}</a></li>
{{- end}}
</ul>
</nav>
{{- end}}
{{- range $i, $s := .Article.Sections}}
<section id="{{anchor $s.Heading}}">
<h2>{{$s.Heading}}</h2>
{{$s.Body | cite}}
{{- range $s.Subsections}}
<h3>{{.Heading}}</h3>
{{.Body | cite}}
{{- end}}
{{- if eq $i $.MidIndex}}{{with $.MidImage}}
<figure class="inline"><img src="{{.URL}}" alt="{{.Alt}}"></figure>
{{- end}}{{end}}
</section>
{{- end}}
{{- with .Article.ComparisonTable}}
<section class="comparison">
{{. | safe}}
</section>
{{- end}}
{{- with .BottomImage}}
<figure class="inline"><img src="{{.URL}}" alt="{{.Alt}}"></figure>
{{- end}}
{{- if .Article.FAQ}}
<section class="faq">
<h2>Frequently asked questions</h2>
{{- range .Article.FAQ}}
<h3>{{.Question}}</h3>
<p>{{.Answer | cite}}</p>
{{- end}}
</section>
{{- end}}
{{- if .Article.PAA}}
<section class="paa">
<h2>People also ask</h2>
{{- range .Article.PAA}}
<h3>{{.Question}}</h3>
<p>{{.Answer | cite}}</p>
{{- end}}
</section>
{{- end}}
{{- if .Article.Citations}}
<section class="citations">
<h2>Sources</h2>
<ol>
{{- range .Article.Citations}}
<li id="source-{{.N}}"><a href="{{.URL}}" rel="nofollow noopener">{{.Title}}</a></li>
{{- end}}
</ol>
</section>
{{- end}}
</article>
</body>
</html>
`
