package extractor

type skill struct {
	Name    string
	Aliases []string
	// Exact forms are ordinary words as well; they only count when written
	// with the same capitalization.
	Exact []string
}

type form struct {
	text  string
	exact bool
}

func (s skill) forms() []form {
	out := make([]form, 0, 1+len(s.Aliases)+len(s.Exact))
	out = append(out, form{text: s.Name})
	for _, a := range s.Aliases {
		out = append(out, form{text: a})
	}
	for _, a := range s.Exact {
		out = append(out, form{text: a, exact: true})
	}
	return out
}

// vocabulary is the fixed list of skills the parser recognises. Order is
// significant: parsed skills are reported in this order.
var vocabulary = []skill{
	// languages
	{Name: "Python", Aliases: []string{"Python3"}},
	{Name: "JavaScript", Aliases: []string{"JS", "ES6", "ECMAScript"}},
	{Name: "TypeScript", Aliases: []string{"TS"}},
	{Name: "Java"},
	{Name: "C++"},
	{Name: "C#"},
	{Name: "Go", Aliases: []string{"Golang"}},
	{Name: "Rust"},
	{Name: "PHP"},
	{Name: "Ruby"},
	{Name: "Swift"},
	{Name: "Kotlin"},
	{Name: "Scala"},
	{Name: "R"},
	{Name: "MATLAB"},
	{Name: "Perl"},
	{Name: "Objective-C"},
	{Name: "Dart"},
	{Name: "Lua"},
	{Name: "Haskell"},
	{Name: "Elixir"},
	{Name: "Clojure"},

	// web
	{Name: "Django"},
	{Name: "FastAPI", Aliases: []string{"Fast API"}},
	{Name: "Flask"},
	{Name: "React", Aliases: []string{"ReactJS", "React.js"}},
	{Name: "Vue", Aliases: []string{"VueJS", "Vue.js"}},
	{Name: "Angular", Aliases: []string{"AngularJS"}},
	{Name: "Next.js", Aliases: []string{"NextJS"}},
	{Name: "Express", Aliases: []string{"ExpressJS", "Express.js"}},
	{Name: "Node.js", Aliases: []string{"NodeJS"}, Exact: []string{"Node"}},
	{Name: "Spring"},
	{Name: "Laravel"},
	{Name: "Rails"},
	{Name: "ASP.NET"},
	{Name: "Svelte"},
	{Name: "Nuxt.js"},
	{Name: "Gatsby"},
	{Name: "Redux"},
	{Name: "MobX"},
	{Name: "jQuery"},
	{Name: "Bootstrap"},
	{Name: "Tailwind CSS"},
	{Name: "Material UI"},
	{Name: "Chakra UI"},

	// mobile
	{Name: "React Native"},
	{Name: "Flutter"},
	{Name: "SwiftUI"},
	{Name: "Android SDK"},
	{Name: "iOS"},
	{Name: "Xamarin"},
	{Name: "Ionic"},
	{Name: "Cordova"},

	// databases
	{Name: "PostgreSQL", Aliases: []string{"Postgres"}},
	{Name: "MySQL"},
	{Name: "MongoDB", Aliases: []string{"Mongo"}},
	{Name: "Redis"},
	{Name: "SQLite"},
	{Name: "Oracle"},
	{Name: "Cassandra"},
	{Name: "DynamoDB"},
	{Name: "Elasticsearch"},
	{Name: "MariaDB"},
	{Name: "CouchDB"},
	{Name: "Neo4j"},
	{Name: "Firebase"},
	{Name: "Supabase"},
	{Name: "Prisma"},
	{Name: "SQLAlchemy"},

	// cloud and devops
	{Name: "AWS", Aliases: []string{"Amazon Web Services"}},
	{Name: "Azure"},
	{Name: "GCP", Aliases: []string{"Google Cloud"}},
	{Name: "Docker"},
	{Name: "Kubernetes", Aliases: []string{"K8s"}},
	{Name: "Terraform"},
	{Name: "Jenkins"},
	{Name: "GitLab CI"},
	{Name: "GitHub Actions"},
	{Name: "Ansible"},
	{Name: "Chef"},
	{Name: "Puppet"},
	{Name: "CircleCI"},
	{Name: "Travis CI"},
	{Name: "ArgoCD"},
	{Name: "Helm"},
	{Name: "Prometheus"},
	{Name: "Grafana"},
	{Name: "Nginx"},
	{Name: "Apache"},
	{Name: "Serverless"},
	{Name: "Lambda"},
	{Name: "EC2"},
	{Name: "S3"},

	// data and ml
	{Name: "TensorFlow"},
	{Name: "PyTorch"},
	{Name: "Scikit-learn"},
	{Name: "Pandas"},
	{Name: "NumPy"},
	{Name: "Spark"},
	{Name: "Hadoop"},
	{Name: "Kafka"},
	{Name: "Airflow"},
	{Name: "Keras"},
	{Name: "OpenCV"},
	{Name: "NLTK"},
	{Name: "spaCy"},
	{Name: "Hugging Face"},
	{Name: "LangChain"},
	{Name: "OpenAI"},
	{Name: "Machine Learning"},
	{Name: "Deep Learning"},
	{Name: "NLP"},
	{Name: "Computer Vision"},
	{Name: "Data Science"},
	{Name: "Data Analysis"},
	{Name: "Data Engineering"},

	// testing
	{Name: "Jest"},
	{Name: "Mocha"},
	{Name: "Pytest"},
	{Name: "JUnit"},
	{Name: "Selenium"},
	{Name: "Cypress"},
	{Name: "Playwright"},
	{Name: "Unit Testing"},
	{Name: "Integration Testing"},
	{Name: "E2E Testing"},
	{Name: "TDD"},
	{Name: "BDD"},

	// other
	{Name: "Git"},
	{Name: "Linux"},
	{Name: "REST API", Aliases: []string{"RESTful"}},
	{Name: "GraphQL"},
	{Name: "Microservices"},
	{Name: "Agile"},
	{Name: "Scrum"},
	{Name: "CI/CD"},
	{Name: "HTML"},
	{Name: "CSS"},
	{Name: "Sass"},
	{Name: "LESS"},
	{Name: "WebSocket"},
	{Name: "gRPC"},
	{Name: "RabbitMQ"},
	{Name: "WebRTC"},
	{Name: "OAuth"},
	{Name: "JWT"},
	{Name: "API Design"},
	{Name: "System Design"},
	{Name: "Software Architecture"},

	// soft skills
	{Name: "Leadership"},
	{Name: "Team Management"},
	{Name: "Communication"},
	{Name: "Problem Solving"},
	{Name: "Project Management"},
	{Name: "Technical Writing"},
}
