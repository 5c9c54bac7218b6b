package server

// Starter templates for common diagram types, served as
// plantuml://templates/<type> resources.
var diagramTemplates = map[string]string{
	"sequence": `@startuml
actor User
participant "Web App" as App
participant "API Server" as API
database DB

User -> App: Submit form
App -> API: POST /items
API -> DB: INSERT item
DB --> API: ok
API --> App: 201 Created
App --> User: Confirmation
@enduml`,

	"class": `@startuml
class User {
  +name: String
  +email: String
  +login(): Boolean
}

class Post {
  +title: String
  +body: String
  +publish(): void
}

class Comment {
  +text: String
}

User "1" -- "many" Post : creates
Post "1" -- "many" Comment : has
@enduml`,

	"usecase": `@startuml
left to right direction
actor Customer
actor Admin

rectangle Shop {
  Customer -- (Browse catalog)
  Customer -- (Place order)
  Admin -- (Manage inventory)
  (Place order) .> (Pay) : include
}
@enduml`,

	"activity": `@startuml
start
:Receive request;
if (valid?) then (yes)
  :Process data;
  :Save result;
else (no)
  :Return error;
endif
stop
@enduml`,

	"component": `@startuml
package "Frontend" {
  [Web UI]
}

package "Backend" {
  [API Gateway]
  [Auth Service]
  [Data Service]
}

database "Storage" {
  [PostgreSQL]
}

[Web UI] --> [API Gateway] : HTTPS
[API Gateway] --> [Auth Service]
[API Gateway] --> [Data Service]
[Data Service] --> [PostgreSQL]
@enduml`,

	"state": `@startuml
[*] --> Idle
Idle --> Running : start
Running --> Paused : pause
Paused --> Running : resume
Running --> Idle : stop
Running --> [*] : shutdown
@enduml`,
}

// Example diagrams served through plantuml://examples.
var exampleDiagrams = []struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}{
	{
		Title:  "Minimal sequence",
		Source: "Alice -> Bob: hello",
	},
	{
		Title: "Authentication flow",
		Source: `@startuml
Alice -> Bob: Authentication Request
Bob --> Alice: Authentication Response
Alice -> Bob: Another authentication Request
Alice <-- Bob: Another authentication Response
@enduml`,
	},
	{
		Title: "Simple class model",
		Source: `@startuml
class Car {
  +make: String
  +model: String
  +drive(): void
}
Car <|-- ElectricCar
@enduml`,
	},
}
