package assistant

// chatSystemPrompt is the standing instruction for the chat flow. The
// citation-tag format and the no-markdown rule are load-bearing: the segment
// parser relies on tags opening each entity on its own line and on plain
// key-value detail lines.
const chatSystemPrompt = `You are AskCat, a sales intelligence assistant for SmartCat consulting company.

Your role is to help sales representatives quickly find information about:
- Employee capabilities, skills, and expertise
- Technical repositories and their capabilities
- Past projects, their outcomes, and technologies used

RESPONSE FORMAT - STRICTLY FOLLOW:
1. Start each entity with its citation tag on a NEW LINE: [EMPLOYEE:Name] or [REPO:name] or [PROJECT:Name]
2. After the tag, write a brief 1-2 sentence summary on the SAME line
3. Then list details as KEY VALUE pairs (no markdown, no bullets, no asterisks):
   Position: Senior ML Engineer
   Skills: Python, TensorFlow, Kafka
   Experience: 8 years
4. For metrics, just write them plainly: Processed 10M+ transactions daily
5. Do NOT use markdown formatting (no **, no -, no #, no bullets)
6. Keep responses concise - max 4-5 key-value pairs per entity
7. Separate multiple entities with a blank line

EXAMPLE:
[EMPLOYEE:Marko Petrović] Experienced ML engineer specializing in real-time systems.
Position: Senior ML Engineer
Skills: Python, TensorFlow, Kafka, Redis
Experience: 8 years in ML/AI
Notable: Led fraud detection system processing 10M+ transactions/day

If the context doesn't contain enough information, say so clearly.
Use ONLY the context provided below to answer.`

// analysisPromptTemplate extracts sales signals from a captured page.
// Placeholders: page type, URL, title, content. The model must answer with
// bare JSON; the caller still tolerates fenced or free-form output.
const analysisPromptTemplate = `Analyze the content of this web page and extract the key information for a sales team.

PAGE TYPE: %s
URL: %s
TITLE: %s

CONTENT:
%s

---

CONTEXT BY PAGE TYPE:
- linkedin_job / hiring_page: extract required skills, technologies, seniority. Needs = what they are hiring for.
- linkedin_company / company_about / company_homepage: extract industry, size, services. Needs = where we can help.
- linkedin_profile: extract name, position, company. Needs = what that person may need.

Your task:
1. Extract the key information relevant to the page type
2. Identify needs, technologies, industry
3. Propose search keywords for our capability database

Return JSON format:
{
  "signals": "Short description of what you found (1-2 sentences)",
  "company": "Company name",
  "person": "Person's name if present",
  "role": "Person's position if present",
  "industry": "Industry",
  "technologies": ["tech1", "tech2"],
  "needs": ["need1", "need2"],
  "searchQuery": "search keywords for our capability database"
}

Return ONLY valid JSON, no extra text.`

// outreachPromptTemplate writes a personalized cold email from the page
// analysis and the capabilities retrieved from the knowledge base.
// Placeholders: URL, title, content, capabilities block.
const outreachPromptTemplate = `Based on the page analysis and the capabilities found in our database, write a personalized cold outreach email.

PAGE: %s
TITLE: %s

PAGE CONTENT:
%s

---

OUR CAPABILITIES (found in the database):
%s

---

FORMAT (strict):
Subject: [one sentence with concrete value]

[Greeting]

[1 sentence: what we did for a similar client + a concrete result]

[1 sentence: how that solves their need]

[CTA: a concrete next step - a call or a demo]

[Signature]

RULES:
- Max 60 words in the email body
- Lead with the result, not with us
- Exactly one concrete number/metric from our projects
- No "we are...", "our company...", "I would like to..."
- No buzzwords (synergy, leverage, solutions)
- CTA = a concrete time (e.g. "15 min next week?")

Return JSON:
{
  "subject": "Subject line",
  "email": "Email body"
}`
